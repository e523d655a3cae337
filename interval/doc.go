/*Package interval reads BED-style genomic intervals and implements the
  interval arithmetic the coverage report needs.

  Scanner streams intervals one record at a time and SumLength adds up their
  lengths without merging them; callers are expected to supply sorted,
  disjoint intervals (as the depth and feature BEDs produced by the pipeline
  stages are).  BEDUnion loads an interval set, merging overlapping
  intervals, and supports containment and intersection queries; DepthSubset
  uses it to restrict a depth BED to a set of genomic features.

  Positions fit in a PosType, which is int32 since that's what BAM files are
  limited to.  Lengths are summed as int64.
*/
package interval
