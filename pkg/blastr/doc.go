// Package blastr runs BLAST searches for many short query sequences against
// a local reference database and collects the tabular hits.
//
// The aligner and the NCBI fetch tool run inside conda environments that are
// created on first use. Every input sequence contributes at least one row to
// the result: real hits, a no_hit row, or a failed row carrying the reason.
//
//	client, _ := blastr.New(ctx, blastr.WithCondaBinary("micromamba"))
//	defer client.Close()
//
//	res, err := client.Run(ctx, []string{"ACGTTGCA...", "TTGACCA..."}, blastr.RunOptions{
//	    Database: "/refs/silva_16s",
//	    Workers:  8,
//	    OutFile:  "hits.tsv",
//	})
//
// With more than one worker the row order across queries is unspecified;
// set RunOptions.SortByQuery to restore input order.
package blastr
