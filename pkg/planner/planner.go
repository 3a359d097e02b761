// Package planner maps parsed statements onto the storage and execution
// layers: SELECT becomes an operator tree (entering through an index
// when one applies), INSERT and the CREATE statements act on the catalog
// directly.
package planner

import (
	"minidb/pkg/catalog"
	"minidb/pkg/dberr"
	"minidb/pkg/execution"
	"minidb/pkg/logging"
	"minidb/pkg/primitives"
	"minidb/pkg/sql"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

var log = logging.For("planner")

// Planner builds executor trees against one catalog.
type Planner struct {
	cat *catalog.Catalog
}

// New returns a planner over cat.
func New(cat *catalog.Catalog) *Planner {
	return &Planner{cat: cat}
}

// PlanSelect turns a SELECT into an operator tree and returns it with
// the schema of the tuples it will produce. The entry operator is an
// IndexScan when the WHERE clause is a single comparison on an indexed
// column (and the operator is not !=); otherwise a SeqScan, with the
// WHERE clause applied as a Filter above it.
func (p *Planner) PlanSelect(stmt sql.Select) (execution.Operator, *tuple.Schema, error) {
	table := p.cat.GetTable(stmt.Table)
	if table == nil {
		return nil, nil, dberr.New(dberr.TableNotFound, "table %q does not exist", stmt.Table)
	}
	schema := table.Schema()

	var op execution.Operator
	usedIndex := false
	if cond, ok := indexableCondition(stmt.Where, table); ok {
		scan, err := execution.NewIndexScan(table.Index(cond.Column), table.Heap(), schema, cond.Op, cond.Value.IntVal)
		if err != nil {
			return nil, nil, err
		}
		op = scan
		usedIndex = true
		log.WithFields(map[string]any{"table": stmt.Table, "column": cond.Column}).Debug("chose index scan")
	} else {
		op = execution.NewSeqScan(table.Heap(), schema)
	}

	if stmt.Join != nil {
		right := p.cat.GetTable(stmt.Join.Table)
		if right == nil {
			op.Close()
			return nil, nil, dberr.New(dberr.TableNotFound, "table %q does not exist", stmt.Join.Table)
		}
		leftIdx := schema.IndexOf(stmt.Join.LeftColumn)
		if leftIdx < 0 {
			op.Close()
			return nil, nil, dberr.New(dberr.ColumnNotFound, "join column %q does not exist", stmt.Join.LeftColumn)
		}
		rightIdx := right.Schema().IndexOf(stmt.Join.RightColumn)
		if rightIdx < 0 {
			op.Close()
			return nil, nil, dberr.New(dberr.ColumnNotFound, "join column %q does not exist", stmt.Join.RightColumn)
		}
		merged := tuple.Concat(schema, right.Schema())
		op = execution.NewNestedLoopJoin(op, right.Heap(), right.Schema(), leftIdx, rightIdx, merged)
		schema = merged
	}

	if !usedIndex && stmt.Where != nil {
		op = execution.NewFilter(op, stmt.Where)
	}

	if !stmt.Star {
		indices := make([]int, len(stmt.Columns))
		for i, name := range stmt.Columns {
			idx := schema.IndexOf(name)
			if idx < 0 {
				op.Close()
				return nil, nil, dberr.New(dberr.ColumnNotFound, "column %q does not exist", name)
			}
			indices[i] = idx
		}
		projected := schema.Project(indices)
		op = execution.NewProject(op, indices, projected)
		schema = projected
	}

	return op, schema, nil
}

// indexableCondition reports whether the WHERE clause is a single
// comparison an index can serve: a Simple node on an indexed column,
// comparing against a non-null integer with any operator but !=.
func indexableCondition(where sql.Condition, table *catalog.Table) (sql.Simple, bool) {
	simple, ok := where.(sql.Simple)
	if !ok {
		return sql.Simple{}, false
	}
	if simple.Op == types.Ne {
		return sql.Simple{}, false
	}
	if simple.Value.Null || simple.Value.Type != types.Integer {
		return sql.Simple{}, false
	}
	if table.Index(simple.Column) == nil {
		return sql.Simple{}, false
	}
	return simple, true
}

// ExecuteInsert validates the row against the table schema and stores
// it. Null literals adopt the column's declared type.
func (p *Planner) ExecuteInsert(stmt sql.Insert) (primitives.RID, error) {
	table := p.cat.GetTable(stmt.Table)
	if table == nil {
		return primitives.RID{}, dberr.New(dberr.TableNotFound, "table %q does not exist", stmt.Table)
	}
	schema := table.Schema()
	if len(stmt.Values) != schema.NumColumns() {
		return primitives.RID{}, dberr.New(dberr.ColumnCountMismatch,
			"%d values for %d columns", len(stmt.Values), schema.NumColumns())
	}

	values := make([]types.Value, len(stmt.Values))
	copy(values, stmt.Values)
	for i := range values {
		if values[i].Null {
			values[i] = types.NullValue(schema.Columns[i].Type)
		}
	}
	return table.Insert(tuple.New(schema, values))
}

// ExecuteCreateTable registers the table described by the statement.
func (p *Planner) ExecuteCreateTable(stmt sql.CreateTable) error {
	cols := make([]tuple.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		cols[i] = tuple.Column{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
	}
	schema, err := tuple.NewSchema(cols)
	if err != nil {
		return err
	}
	_, err = p.cat.CreateTable(stmt.Name, schema)
	return err
}

// ExecuteCreateIndex builds an index on the named column. The table
// quietly skips non-integer columns.
func (p *Planner) ExecuteCreateIndex(stmt sql.CreateIndex) error {
	table := p.cat.GetTable(stmt.Table)
	if table == nil {
		return dberr.New(dberr.TableNotFound, "table %q does not exist", stmt.Table)
	}
	return table.CreateIndex(stmt.Column)
}
