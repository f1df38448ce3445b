// Package mars implements Multivariate Adaptive Regression Splines:
// a piecewise-linear regression built from products of hinge functions.
// It is structured into small files by concern:
//
//   - schema.go: feature layout and design-matrix encoding, including
//     the category-level mapping reused verbatim at inference time.
//   - fit.go: forward stepwise selection of mirrored hinge pairs and
//     backward pruning by generalized cross-validation.
//   - model.go: the persisted Model bundle, Train and Predict.
//
// External packages should treat Train and Model.Predict as the API;
// the fitting internals are subject to change.
package mars
