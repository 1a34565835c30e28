// Package boxcoder converts 3D bounding boxes to and from regression deltas
// relative to a reference anchor box.
//
// Box layout is [x, y, z, dx, dy, dz, r, c1..ck] where z is the bottom face
// height and c1..ck are optional per-box channels such as velocity. Deltas
// share the layout: xy offsets normalised by the anchor footprint diagonal,
// z offset normalised by anchor height, log-ratio sizes, additive heading
// and additive extras.
//
// Two forms are provided. Boxes is a slice of rows and is the primary API.
// EncodeDense/DecodeDense operate column-wise on gonum matrices of shape
// (N, C), which is convenient when the caller already holds batched data.
//
// No SQL, file or logging code belongs in this package.
package boxcoder
