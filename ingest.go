package datasets

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// IngestOptions tune Ingest.
type IngestOptions struct {
	// Strict rejects manifests containing entries of unknown type
	// instead of dropping them with a warning.
	Strict bool
	Logger logrus.FieldLogger
}

func (o IngestOptions) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Ingest runs the whole manifest pipeline on raw bytes:
// parse, validate, decode, normalize, aggregate, infer format and assemble.
// No dataset is returned unless every step succeeds.
func Ingest(data []byte, opts IngestOptions) (*Dataset, error) {
	log := opts.logger()

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	m, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	log = log.WithField("manifest", m.Name)

	tree, skipped := Normalize(m.Contents, "")
	if len(skipped) > 0 && opts.Strict {
		return nil, &NormalizationError{
			Path:   skipped[0],
			Reason: fmt.Sprintf("unknown @type at %s", strings.Join(quoteAll(skipped), ", ")),
		}
	}

	size := TotalSize(tree)
	format := InferFormat(tree)
	d := Assemble(m, tree, size, format)

	for _, p := range skipped {
		d.Warnings = append(d.Warnings, fmt.Sprintf("skipped entry of unknown type at %q", p))
		log.WithField("path", p).Warn("skipping manifest entry of unknown type")
	}

	log.WithFields(logrus.Fields{
		"size":   d.Size,
		"format": d.Format,
		"files":  CountFiles(tree),
	}).Info("manifest parsed")
	return &d, nil
}

func quoteAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strconv.Quote(p)
	}
	return out
}
