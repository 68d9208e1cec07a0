// Package contamination scores pickup images for contamination.
//
// Providers return a raw integer score on the 1–10 rubric scale together with
// a Clean/Low/Moderate/High label. The persisted canonical score lives on a
// 0–1 scale and is derived with Canonical when a score is attached to a
// pickup; the two scales are never mixed. Pipeline adds the URL-first,
// buffer-fallback calling convention and AlertPolicy decides when a score is
// high enough to raise a contamination alert.
package contamination
