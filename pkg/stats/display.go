// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonaengs/jsonflex/pkg/util/humanizeutil"
	"github.com/olekukonko/tablewriter"
)

// String renders the histogram as a table, one row per path bucket, for
// logs and debugging output.
func (h *Histogram) String() string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"path", "freq", "null", "kind", "min", "max", "ndv", "gram"})
	for i := range h.buckets {
		b := &h.buckets[i]
		row := []string{
			b.Path,
			fmt.Sprintf("%.4g", b.Frequency),
			fmt.Sprintf("%.4g", b.NullFraction),
			b.Kind.String(),
			"", "", "", "",
		}
		if b.Min != nil {
			row[4] = b.Min.String()
			row[5] = b.Max.String()
		}
		if b.NDV > 0 {
			row[6] = strconv.FormatInt(b.NDV, 10)
		}
		if b.Gram != nil {
			row[7] = fmt.Sprintf("%v(%d)", b.Gram.Form, b.Gram.NumBuckets())
			if b.Gram.RestMeanFrequency > 0 {
				row[7] += fmt.Sprintf(" rest=%.4g", b.Gram.RestMeanFrequency)
			}
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(&sb, "%d buckets, collation=%s, sampling-rate=%g, %s\n",
		h.NumBuckets(), h.collation.Name(), h.samplingRate,
		humanizeutil.IBytes(h.MemoryEstimate()))
	return sb.String()
}
