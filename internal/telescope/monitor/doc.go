// Package monitor books and renders per-run track-quality histograms:
// unbiased residuals per plane, chi2/ndof, fit probability, DAF weights
// and candidate multiplicity.
package monitor
