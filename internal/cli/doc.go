// Package cli provides command-line interface setup and configuration
// for the xamr application. It handles flag parsing, command creation,
// configuration management using cobra and viper, and builds the model
// backends each command needs.
package cli
