// package classify groups track collections under labels.
//
// Classification is pure: it never touches the network or mutates its input.
// Four policies are supported (genre, mood, decade, artist); mood uses an
// ordered rule table evaluated top to bottom where the first matching rule
// wins. The same rule table drives the mood criterion of the filter engine.
package classify
