package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // 纯 Go 实现的 SQLite，无需 CGO

	"kaudit/pkg/types"
)

// FindingDB 审计结论的 SQLite 落盘
// 每次审计追加一批带时间戳的记录，方便用 sqlite3 做事后查询。
type FindingDB struct {
	db     *sql.DB
	dbPath string
}

// DefaultDBPath 返回默认的数据库路径
func DefaultDBPath() string {
	return "kaudit_findings.db"
}

// NewFindingDB 创建或打开数据库
func NewFindingDB(dbPath string) (*FindingDB, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath()
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	findingDB := &FindingDB{db: db, dbPath: dbPath}
	if err := findingDB.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return findingDB, nil
}

// initSchema 初始化数据库表结构
func (f *FindingDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		namespace TEXT NOT NULL,
		pod TEXT NOT NULL,
		container TEXT,
		dimension TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT,
		collected_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_findings_namespace ON findings(namespace);
	CREATE INDEX IF NOT EXISTS idx_findings_status ON findings(status);
	CREATE INDEX IF NOT EXISTS idx_findings_dimension ON findings(dimension);
	CREATE INDEX IF NOT EXISTS idx_findings_collected_at ON findings(collected_at);
	`

	if _, err := f.db.Exec(schema); err != nil {
		return fmt.Errorf("初始化数据库表结构失败: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (f *FindingDB) Close() error {
	return f.db.Close()
}

// Path 返回数据库文件路径
func (f *FindingDB) Path() string {
	return f.dbPath
}

// SaveReport 保存一个命名空间的全部结论，返回写入条数
func (f *FindingDB) SaveReport(report types.NamespaceReport) (int, error) {
	tx, err := f.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO findings (namespace, pod, container, dimension, status, detail, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("准备语句失败: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	saved := 0
	for _, pod := range report.Pods {
		for _, finding := range pod.Findings {
			if _, err := stmt.Exec(
				finding.Namespace,
				finding.Pod,
				finding.Container,
				string(finding.Dimension),
				string(finding.Status),
				finding.Detail,
				now,
			); err != nil {
				return saved, fmt.Errorf("写入结论失败: %w", err)
			}
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return saved, fmt.Errorf("提交事务失败: %w", err)
	}
	return saved, nil
}
