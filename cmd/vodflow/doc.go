// Command vodflow uploads media files to a remote encoding service, waits for
// the adaptive-streaming job to finish, and prints the resulting streaming
// URL. Run history is kept locally and browsable with `vodflow runs`.
package main
