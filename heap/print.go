package heap

import (
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const rule = "---------------------------------------------------------------------------------"

// Print writes the block list as a table followed by the used, free and
// total byte counts:
//
//	No.  Status  Prev   Begin       End         Size
//	1    alloc   alloc  0x00000004  0x0000001B  24
//	2    free    alloc  0x0000001C  0x00000FF3  4,056
//
// Offsets are relative to the region start; sizes use English digit grouping.
func (h *Heap) Print(w io.Writer) error {
	return PrintBlocks(w, h.Dump())
}

// PrintBlocks renders a snapshot taken with Dump in the Print format.
func PrintBlocks(w io.Writer, blocks []Block) error {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	p.Fprintf(&sb, "%s\n%s\n", banner("Block List"), rule)

	tw := tabwriter.NewWriter(&sb, 0, 8, 2, ' ', 0)
	p.Fprintf(tw, "No.\tStatus\tPrev\tBegin\tEnd\tSize\n")
	var used, free int
	for _, b := range blocks {
		p.Fprintf(tw, "%d\t%s\t%s\t0x%08X\t0x%08X\t%d\n",
			b.Seq, b.Status(), b.PrevStatus(), b.Start, b.End, b.Size)
		if b.Allocated {
			used += b.Size
		} else {
			free += b.Size
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p.Fprintf(&sb, "%s\n", rule)
	p.Fprintf(&sb, "Used size  = %d\n", used)
	p.Fprintf(&sb, "Free size  = %d\n", free)
	p.Fprintf(&sb, "Total size = %d\n", used+free)
	p.Fprintf(&sb, "%s\n", rule)

	_, err := io.WriteString(w, sb.String())
	return err
}

func banner(title string) string {
	pad := (len(rule) - len(title) - 2) / 2
	left := strings.Repeat("*", pad)
	right := strings.Repeat("*", len(rule)-pad-len(title)-2)
	return left + " " + title + " " + right
}
