// Package boxio reads and writes box tables as CSV or JSON Lines.
//
// A table is a list of rows [x, y, z, dx, dy, dz, r, c1..ck]; the same
// layout holds encoded deltas. CSV files may start with a header row.
// JSON Lines files hold one array of numbers per line, with non-finite
// values written as the strings "NaN", "+Inf" and "-Inf".
package boxio
