package dataset

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/sentinel/internal/model"
)

// ReadCSV reads a comma-separated dataset whose first row is the header.
// A leading byte order mark is stripped.
func ReadCSV(ctx context.Context, r io.Reader) (*model.Dataset, error) {
	return readDelimited(ctx, r, ',')
}

func readDelimited(ctx context.Context, r io.Reader, delim rune) (*model.Dataset, error) {
	rowCh, errCh := streamRows(ctx, r, delim)

	var b *builder
	for row := range rowCh {
		if b == nil {
			var err error
			if b, err = newBuilder(row); err != nil {
				// Drain so the reader goroutine can exit.
				for range rowCh {
				}
				return nil, err
			}
			continue
		}
		b.add(row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if b == nil {
		return nil, eris.New("csv: no header row")
	}
	return b.dataset(), nil
}

// streamRows reads delimited rows in a goroutine and sends them on the row
// channel. Both channels are closed when reading completes.
func streamRows(ctx context.Context, r io.Reader, delim rune) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
		reader.Comma = delim
		reader.Comment = '#'
		reader.FieldsPerRecord = -1 // allow ragged rows
		reader.TrimLeadingSpace = true

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
