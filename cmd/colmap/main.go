// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command colmap plans and gathers a selection against a small
// synthetic in-memory column, printing the resulting range plan and
// flat output. It exists to exercise the Make/iteration protocol
// end to end without a real table store behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"

	"colmap"
	"colmap/buffer"
	"colmap/store"
)

func main() {
	var (
		nrow        = flag.Int("rows", 10, "number of rows in the synthetic column")
		shapeFlag   = flag.String("shape", "2,4", "fixed cell shape, comma-separated")
		selectFlag  = flag.String("select", "", "comma-separated row ids to select; empty selects every row")
		parallelism = flag.Int("parallelism", 4, "number of disjoint ranges to gather concurrently")
	)
	flag.Parse()

	shape, err := parseUint64s(*shapeFlag)
	if err != nil {
		log.Fatalf("colmap: -shape: %v", err)
	}

	col := store.NewFixed("DATA", uint64(*nrow), shape)
	cellSize := uint64(1)
	for _, s := range shape {
		cellSize *= s
	}
	cell := make([]float64, cellSize)
	for r := uint64(0); r < uint64(*nrow); r++ {
		for i := range cell {
			cell[i] = float64(r*100) + float64(i)
		}
		if err := col.Put(r, shape, cell); err != nil {
			log.Fatalf("colmap: Put: %v", err)
		}
	}

	var sel colmap.Selection
	if *selectFlag != "" {
		ids, err := parseUint64s(*selectFlag)
		if err != nil {
			log.Fatalf("colmap: -select: %v", err)
		}
		sel = colmap.Selection{ids}
	}

	m, err := colmap.Make(col, sel, colmap.OuterFirst)
	if err != nil {
		log.Fatalf("colmap: Make: %v", err)
	}
	fmt.Printf("ranges=%d elements=%d simple=%v\n", m.NRanges(), m.NElements(), m.IsSimple())
	if outShape, ok := m.OutputShape(); ok {
		fmt.Printf("output shape=%v\n", outShape)
	}

	out := buffer.MakeFor(m, reflect.TypeOf(float64(0)))
	outSlice := out.Interface().([]float64)
	ctx := context.Background()
	if err := store.Gather(ctx, m, col, outSlice, *parallelism); err != nil {
		log.Fatalf("colmap: Gather: %v", err)
	}
	fmt.Println(outSlice)
}

func parseUint64s(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %v", p, err)
		}
		out[i] = v
	}
	return out, nil
}
