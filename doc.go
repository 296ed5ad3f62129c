// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
Package colmap bridges a columnar table store, whose columns may hold
multi-dimensional cells with per-row varying shapes, to a row-major
consumer that expects a flat, densely packed output buffer.

Given a Column (the store collaborator, described by the Column
interface) and a Selection (a possibly sparse, possibly reordered list
of row identifiers per dimension), Make builds an immutable Mapping
that:

  - decides what the output shape looks like, or reports that no single
    dense shape exists;
  - plans the minimum number of disjoint read requests against the
    store that together cover the selection;
  - exposes an iteration protocol that, for every such read request,
    yields the matching destination offsets in the flat output buffer.

A Mapping performs no I/O itself. Construction may block on metadata
reads against the store; iteration only produces slicers describing
what to read and where results belong, leaving the actual reads (and
any parallelism across them) to the caller. See package store for a
reference Column implementation and a helper that dispatches reads
concurrently, and package buffer for a reflect-based flat output
buffer that a Mapping's offsets can scatter into.
*/
package colmap
