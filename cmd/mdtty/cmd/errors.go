package cmd

import "errors"

// ErrorArg indicates invalid command line usage.
var ErrorArg = errors.New("invalid arguments")

// ErrorReading indicates at least one input could not be rendered.
var ErrorReading = errors.New("reading input failed")
