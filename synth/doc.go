// Package synth turns word problems into candidate arithmetic expressions by
// asking a hosted language model.
//
// The output of a Synthesizer is untrusted text. It is meant to be a single
// arithmetic expression, but nothing upstream enforces that; callers pass it
// through wordmath's character-set gate before evaluating it.
package synth
