package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  firstname TEXT NOT NULL DEFAULT '',
  lastname TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrolments (
  course_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  can_update_course INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS activities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  intro TEXT NOT NULL DEFAULT '',
  event_slug TEXT NOT NULL DEFAULT '',
  edit_url TEXT NOT NULL DEFAULT '',
  grade INTEGER NOT NULL DEFAULT 100,
  custom_completion INTEGER NOT NULL DEFAULT 0,
  author_id INTEGER NOT NULL DEFAULT 0,
  time_created INTEGER NOT NULL,
  time_modified INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS course_modules (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL,
  activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  visible INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS completion (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  user_id INTEGER NOT NULL,
  grade REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  time_created INTEGER NOT NULL,
  time_modified INTEGER NOT NULL,
  UNIQUE (activity_id, user_id)
);

CREATE TABLE IF NOT EXISTS grade_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL,
  activity_id INTEGER NOT NULL UNIQUE,
  item_name TEXT NOT NULL,
  grade_type TEXT NOT NULL,
  grade_max REAL NOT NULL DEFAULT 100,
  scale_id INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS grades (
  grade_item_id INTEGER NOT NULL REFERENCES grade_items(id) ON DELETE CASCADE,
  user_id INTEGER NOT NULL,
  raw_grade REAL NOT NULL,
  time_modified INTEGER NOT NULL,
  PRIMARY KEY (grade_item_id, user_id)
);

CREATE TABLE IF NOT EXISTS module_completion (
  cm_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL,
  state TEXT NOT NULL,
  time_modified INTEGER NOT NULL,
  PRIMARY KEY (cm_id, user_id)
);

CREATE TABLE IF NOT EXISTS sessions (
  sid TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL DEFAULT 0,
  consent INTEGER,
  pending_json TEXT NOT NULL DEFAULT '',
  wants_url TEXT NOT NULL DEFAULT '',
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
  name TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  firstname TEXT NOT NULL DEFAULT '',
  lastname TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrolments (
  course_id BIGINT NOT NULL,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  can_update_course SMALLINT NOT NULL DEFAULT 0,
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS activities (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL,
  name TEXT NOT NULL,
  intro TEXT NOT NULL DEFAULT '',
  event_slug TEXT NOT NULL DEFAULT '',
  edit_url TEXT NOT NULL DEFAULT '',
  grade BIGINT NOT NULL DEFAULT 100,
  custom_completion SMALLINT NOT NULL DEFAULT 0,
  author_id BIGINT NOT NULL DEFAULT 0,
  time_created BIGINT NOT NULL,
  time_modified BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_modules (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL,
  activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  visible SMALLINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS completion (
  id BIGSERIAL PRIMARY KEY,
  activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  user_id BIGINT NOT NULL,
  grade DOUBLE PRECISION NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  time_created BIGINT NOT NULL,
  time_modified BIGINT NOT NULL,
  UNIQUE (activity_id, user_id)
);

CREATE TABLE IF NOT EXISTS grade_items (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL,
  activity_id BIGINT NOT NULL UNIQUE,
  item_name TEXT NOT NULL,
  grade_type TEXT NOT NULL,
  grade_max DOUBLE PRECISION NOT NULL DEFAULT 100,
  scale_id BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS grades (
  grade_item_id BIGINT NOT NULL REFERENCES grade_items(id) ON DELETE CASCADE,
  user_id BIGINT NOT NULL,
  raw_grade DOUBLE PRECISION NOT NULL,
  time_modified BIGINT NOT NULL,
  PRIMARY KEY (grade_item_id, user_id)
);

CREATE TABLE IF NOT EXISTS module_completion (
  cm_id BIGINT NOT NULL,
  user_id BIGINT NOT NULL,
  state TEXT NOT NULL,
  time_modified BIGINT NOT NULL,
  PRIMARY KEY (cm_id, user_id)
);

CREATE TABLE IF NOT EXISTS sessions (
  sid TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL DEFAULT 0,
  consent SMALLINT,
  pending_json TEXT NOT NULL DEFAULT '',
  wants_url TEXT NOT NULL DEFAULT '',
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
  name TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
