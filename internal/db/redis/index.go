package redis

import (
	"cmp"
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/chatmaps/internal/db"
)

// CreateIndex implements db.IndexManager. A concurrent creator winning the race
// surfaces as db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := ftCreateArgs(def)
	if err != nil {
		return fmt.Errorf("index %s: %w", def.Name, err)
	}
	if err := s.ft(ctx, db.OpCreateIndex, args...).Error(); err != nil {
		if serverSays(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Target: def.Name, Err: err}
	}
	return nil
}

// IndexExists implements db.IndexManager through FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.ft(ctx, db.OpIndexInfo, name).Error()
	switch {
	case err == nil:
		return true, nil
	case serverSays(err, "unknown index name", "not found"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Target: name, Err: err}
	}
}

// ftCreateArgs renders def as FT.CREATE arguments over HASH keys.
func ftCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range def.Fields {
		field, err := schemaArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, field...)
	}
	return args, nil
}

// schemaArgs renders one SCHEMA entry. Vector fields default to HNSW over
// cosine distance; M and EF_CONSTRUCTION are only sent for HNSW.
func schemaArgs(f *db.IndexField) ([]string, error) {
	out := []string{f.Name}
	if f.Alias != "" {
		out = append(out, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldTag:
		out = append(out, "TAG")
		if f.TagSeparator != "" {
			out = append(out, "SEPARATOR", f.TagSeparator)
		}
		return out, nil

	case db.IndexFieldVector:
		algo := cmp.Or(f.VectorAlgo, db.VectorHNSW)
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.VectorDim),
			"DISTANCE_METRIC", string(cmp.Or(f.VectorDistance, db.DistanceCosine)),
		}
		if algo == db.VectorHNSW && f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if algo == db.VectorHNSW && f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
		out = append(out, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
		return append(out, attrs...), nil
	}
	return nil, fmt.Errorf("field %s: unsupported type %d", f.Name, f.Type)
}
