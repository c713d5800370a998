// Package workspace stages a build in a scratch directory next to the output
// directory and promotes it into place once every stage has succeeded.
//
// The staging directory is a sibling of the output (e.g. .build-staging-20261016-122336)
// so promotion is a rename on the same filesystem. A failed build leaves the
// previous output untouched.
package workspace
