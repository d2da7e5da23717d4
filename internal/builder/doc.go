// Package builder invokes the external documentation tools: the book
// compiler and the API-reference generator. Both are opaque commands
// configured as argv templates with {source}, {dest} and {cache}
// placeholders; the pipeline never inspects their output beyond the exit
// status.
package builder
