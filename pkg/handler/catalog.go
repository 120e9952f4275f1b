package handler

import (
	"context"
	"errors"
	"fmt"
)

var ErrMissingDatabase = errors.New("database is required")
var ErrMissingSchema = errors.New("schema is required")
var ErrMissingTable = errors.New("table is required")

// SchemasInfo is the list_schemas response payload.
type SchemasInfo struct {
	Database string   `json:"database"`
	Schemas  []string `json:"schemas"`
}

// TablesInfo is the list_tables response payload.
type TablesInfo struct {
	Database string   `json:"database"`
	Schema   string   `json:"schema"`
	Tables   []string `json:"tables"`
}

// ViewsInfo is the list_views response payload.
type ViewsInfo struct {
	Database string   `json:"database"`
	Schema   string   `json:"schema"`
	Views    []string `json:"views"`
}

// RolesInfo is the list_roles response payload.
type RolesInfo struct {
	Roles []string `json:"roles"`
}

// WarehousesInfo is the list_warehouses response payload.
type WarehousesInfo struct {
	Warehouses []string `json:"warehouses"`
}

// ListSchemas lists the schemas of a database, optionally filtered by name.
func ListSchemas(ctx context.Context, q Querier, database string, filter *NameFilter) (*SchemasInfo, error) {
	if database == "" {
		return nil, ErrMissingDatabase
	}
	result, err := q.Query(ctx, fmt.Sprintf("SHOW SCHEMAS IN DATABASE %s", database))
	if err != nil {
		return nil, fmt.Errorf("list schemas in %s: %w", database, err)
	}
	return &SchemasInfo{
		Database: database,
		Schemas:  filter.Apply(namesFromShowOutput(result)),
	}, nil
}

// ListTables lists the tables of a schema, optionally filtered by name.
func ListTables(ctx context.Context, q Querier, database, schema string, filter *NameFilter) (*TablesInfo, error) {
	if database == "" {
		return nil, ErrMissingDatabase
	}
	if schema == "" {
		return nil, ErrMissingSchema
	}
	result, err := q.Query(ctx, fmt.Sprintf("SHOW TABLES IN SCHEMA %s.%s", database, schema))
	if err != nil {
		return nil, fmt.Errorf("list tables in %s.%s: %w", database, schema, err)
	}
	return &TablesInfo{
		Database: database,
		Schema:   schema,
		Tables:   filter.Apply(namesFromShowOutput(result)),
	}, nil
}

// ListViews lists the views of a schema, optionally filtered by name.
func ListViews(ctx context.Context, q Querier, database, schema string, filter *NameFilter) (*ViewsInfo, error) {
	if database == "" {
		return nil, ErrMissingDatabase
	}
	if schema == "" {
		return nil, ErrMissingSchema
	}
	result, err := q.Query(ctx, fmt.Sprintf("SHOW VIEWS IN SCHEMA %s.%s", database, schema))
	if err != nil {
		return nil, fmt.Errorf("list views in %s.%s: %w", database, schema, err)
	}
	return &ViewsInfo{
		Database: database,
		Schema:   schema,
		Views:    filter.Apply(namesFromShowOutput(result)),
	}, nil
}

// ListRoles lists the roles visible to the current session.
func ListRoles(ctx context.Context, q Querier, filter *NameFilter) (*RolesInfo, error) {
	result, err := q.Query(ctx, "SHOW ROLES")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return &RolesInfo{Roles: filter.Apply(namesFromShowOutput(result))}, nil
}

// ListWarehouses lists the warehouses visible to the current session.
func ListWarehouses(ctx context.Context, q Querier, filter *NameFilter) (*WarehousesInfo, error) {
	result, err := q.Query(ctx, "SHOW WAREHOUSES")
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return &WarehousesInfo{Warehouses: filter.Apply(namesFromShowOutput(result))}, nil
}
