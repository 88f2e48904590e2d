package db

const Schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT,
	asana_url TEXT,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	parent_topic_id INTEGER,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id),
	FOREIGN KEY (parent_topic_id) REFERENCES topics(id)
);

CREATE TABLE IF NOT EXISTS discussion_logs (
	id INTEGER PRIMARY KEY,
	topic_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (topic_id) REFERENCES topics(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY,
	topic_id INTEGER NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (topic_id) REFERENCES topics(id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'in_progress', 'completed', 'blocked')),
	topic_id INTEGER,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id),
	FOREIGN KEY (topic_id) REFERENCES topics(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS search_index (
	id INTEGER PRIMARY KEY,
	source_type TEXT NOT NULL CHECK (source_type IN ('topic', 'decision', 'task')),
	source_id INTEGER NOT NULL,
	project_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	UNIQUE (source_type, source_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS search_index_fts USING fts5(
	title,
	body,
	content = '',
	contentless_delete = 1,
	tokenize = 'trigram'
);

CREATE TABLE IF NOT EXISTS vec_index (
	rowid INTEGER PRIMARY KEY,
	embedding BLOB NOT NULL,
	FOREIGN KEY (rowid) REFERENCES search_index(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_topics_project_parent ON topics(project_id, parent_topic_id);
CREATE INDEX IF NOT EXISTS idx_logs_topic ON discussion_logs(topic_id);
CREATE INDEX IF NOT EXISTS idx_decisions_topic ON decisions(topic_id);
CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status);
CREATE INDEX IF NOT EXISTS idx_search_index_project ON search_index(project_id, source_type);
`
