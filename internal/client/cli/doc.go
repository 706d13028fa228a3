// Package cli is the interactive terminal client for the dating API.
//
// It keeps the signed-in session in a local SQLite database, uploads
// photos and exchanges end-to-end encrypted messages. Message keys are an
// RSA pair kept in the data directory; everyone chatting shares the same
// pair, created once with the keygen command.
//
// App.Run starts the REPL and blocks until the user exits.
package cli
