package main

// General API documentation for swaggo. The served document lives in
// internal/httpapi/openapi.json and is mounted with -tags=swagger.
//
// @title           lazycare API
// @version         0.1
// @description     Text generation over a fine-tuned causal language model, plus per-user chat history.
//
// @BasePath  /
//
// @schemes http
