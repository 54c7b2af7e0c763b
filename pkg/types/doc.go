// Package types defines the value types shared between gilt's checkout,
// transform, materialize and overlay packages: a Checkout describes a
// repository materialized at a resolved revision, an Operation describes a
// single copy from that checkout into the output tree.
package types
