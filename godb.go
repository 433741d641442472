package godb

import (
	"os"

	"mit.edu/dsg/godb/catalog"
	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/planner"
	"mit.edu/dsg/godb/storage"
)

// GoDB is the top-level container wiring the catalog, the buffer pool, and
// the heap files they describe into something a planner can build a
// TableScanNode against. There is no transaction manager, lock manager, log
// manager, or index manager here: concurrency control across sessions,
// crash recovery, and index maintenance are outside this engine's scope.
type GoDB struct {
	Catalog        *catalog.Catalog
	BufferPool     *storage.BufferPool
	catalogManager *catalog.DiskCatalogManager

	heapFiles map[common.ObjectID]*storage.HeapFile
}

// NewGoDB opens (or creates) a database rooted at storageDir, backed by a
// buffer pool of bufferPoolSize pages.
func NewGoDB(cat *catalog.Catalog, storageDir string, bufferPoolSize int) (*GoDB, error) {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return nil, err
	}

	bufferPool := storage.NewBufferPool(bufferPoolSize, storage.NewDiskStorageManager(storageDir))

	return &GoDB{
		Catalog:        cat,
		BufferPool:     bufferPool,
		catalogManager: catalog.NewDiskCatalogManager(storageDir),
		heapFiles:      make(map[common.ObjectID]*storage.HeapFile),
	}, nil
}

// CreateTable registers tableName in the catalog and opens its (initially
// empty) heap file.
func (db *GoDB) CreateTable(tableName string, columns []catalog.Column) (*catalog.Table, error) {
	table, err := db.Catalog.AddTable(tableName, columns, db.catalogManager)
	if err != nil {
		return nil, err
	}
	if _, err := db.heapFile(table); err != nil {
		return nil, err
	}
	return table, nil
}

// OpenTableScan builds an uninitialized planner.TableScanNode over tableName,
// ready to be Prepare()'d and Initialize()'d by a caller assembling a plan.
func (db *GoDB) OpenTableScan(tableName string) (*planner.TableScanNode, error) {
	table, err := db.Catalog.GetTableMetadata(tableName)
	if err != nil {
		return nil, err
	}
	hf, err := db.heapFile(table)
	if err != nil {
		return nil, err
	}
	return planner.NewTableScanNode(table.Oid, table.Schema(), hf), nil
}

func (db *GoDB) heapFile(table *catalog.Table) (*storage.HeapFile, error) {
	if hf, ok := db.heapFiles[table.Oid]; ok {
		return hf, nil
	}

	fieldTypes := make([]common.Type, len(table.Columns))
	for i, c := range table.Columns {
		fieldTypes[i] = c.Type
	}
	codec := storage.NewRawTupleCodec(fieldTypes)

	hf, err := storage.NewHeapFile(table.Oid, codec, db.BufferPool)
	if err != nil {
		return nil, err
	}
	db.heapFiles[table.Oid] = hf
	return hf, nil
}
