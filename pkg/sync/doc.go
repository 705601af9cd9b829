/*
The sync package implements dirsync's mirroring algorithm. It keeps a replica
directory identical to a source directory by rescanning both trees on every
cycle and applying the minimal set of changes to the replica.

A cycle has four steps:
1) Snapshot -- Both roots are walked into sets of relative paths. Symlinks are
   recorded but never followed, so a link to a directory is mirrored as a
   link.
2) Remove -- Paths that only exist in the replica are removed, deepest first,
   so that directories are empty by the time they're removed.
3) Update -- Paths that exist in both trees are compared. Files are compared
   by content, and symlinks by their target.
4) Create -- Paths that only exist in the source are created, shallowest
   first, so that parent directories exist before their children.

If the replica doesn't exist at all, the source tree is copied over in one
pass instead.

Entry kinds are never cached in a snapshot. They're looked up right before
each operation since they may change while a cycle is running.
*/
package sync
