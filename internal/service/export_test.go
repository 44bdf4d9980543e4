package service

// ExtractionConfidence exposes extractionConfidence to external tests.
var ExtractionConfidence = extractionConfidence
