// Package linefit provides a direct, non-iterative least-squares fit of a
// straight track through a telescope, including one free kink angle per
// scattering plane constrained by its scattering variance.
//
// It solves the same model as the annealed information filter in package
// telescope in a single batch, and serves as its reference.
package linefit
