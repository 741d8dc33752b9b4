// Package reservoir provides the bounded per-agent thought store. Thoughts
// are ephemeral: when the reservoir overflows, the lowest-saliency
// Articulated or Discarded thoughts are evicted first, then the
// lowest-saliency of the rest.
package reservoir
