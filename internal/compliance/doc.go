// Package compliance turns extracted certificate-of-insurance policies into a
// compliance verdict: it combines policies per coverage category, checks the
// combined record against the required limits, and validates declared
// expiration dates for the live approval path.
package compliance
