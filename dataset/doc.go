// Package dataset loads multi-attribute tables into immutable record sequences.
//
// Every record carries a dense 0..N-1 identifier at position 0, assigned at
// load time and independent of any identifier column in the source. Sources
// resolve logical dataset names; BlobSource reads semicolon-separated CSV
// files out of a blobstore.BlobStore.
package dataset
