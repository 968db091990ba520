/*Package misobf reads the comparison files written by MISO's compare_miso
  (miso_vs_miso.miso_bf). Each data line is parsed, against the header line of
  its file, into an Event that exposes the event name, the per-sample
  summaries, the Bayes factor and the isoform list, plus a few derived values
  (coordinates embedded in the event name, filter predicates).

  The numeric columns other than diff and bayes_factor are kept as the text
  MISO wrote; this package never recomputes any of MISO's statistics.
*/
package misobf
