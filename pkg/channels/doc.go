/*
Package channels implements the State Store of the Lattice engine.

Every channel of the shared State has a reducer fixed when the channel is
declared. Merging a PartialUpdate applies, for each channel present in the
update, that channel's reducer against the current value and produces a new
snapshot; channels absent from the update are left untouched. Merges never
modify a previous snapshot, which makes replaying the same sequence of updates
deterministic.

Two canonical reducers are provided: Overwrite (last write wins, the default
for undeclared channels) and Append (ordered sequence).
*/
package channels
