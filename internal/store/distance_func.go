package store

// distanceFuncName is the SQL scalar function ArtifactRepository calls to
// compute cosine distance between two embedding blobs. The default targets
// vec_compat.go's "vector_distance_cos" (registered against modernc.org/
// sqlite); building with sqlite_vec,cgo switches this to the native
// sqlite-vec extension's own function via open_cgo.go's init().
var distanceFuncName = "vector_distance_cos"
