// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides byte-array helpers for raw FASTA sequence:
// replacing non-ACGT characters (used by encoding/fasta's OptClean) and
// converting ASCII bases to a 4-bit encoding.
//
// See base/simd/doc.go for more comments on the overall design.
package biosimd
