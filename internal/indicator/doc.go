// Package indicator finds sensitive artifacts in text recovered from an
// image: private key markers, cryptocurrency addresses, email addresses and
// onion service addresses.
//
// Steganography is a common way to smuggle exactly this kind of material,
// so an indicator in the output of an extraction tool is strong evidence that
// a payload was recovered. Addresses with a checksum (Bitcoin legacy, onion
// v3) are validated to keep random byte runs from producing false positives.
package indicator
