package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           marsd API
// @version         1.0
// @description     HTTP API for MARS model training containers: health check and prediction.
//
// @contact.name   marsd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
