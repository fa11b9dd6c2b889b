package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    email              TEXT NOT NULL UNIQUE,
    preferred_category TEXT NOT NULL DEFAULT '',
    preferred_region   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS topic_preferences (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    topic_name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_topic_preferences_user ON topic_preferences(user_id);

CREATE TABLE IF NOT EXISTS api_errors (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    error_message TEXT NOT NULL,
    timestamp     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_errors_timestamp ON api_errors(timestamp);

CREATE TABLE IF NOT EXISTS api_token_usage (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id        TEXT NOT NULL UNIQUE,
    request_timestamp DATETIME NOT NULL,
    model_name        TEXT NOT NULL,
    user_id           TEXT NOT NULL DEFAULT 'anonymous',
    feature_name      TEXT NOT NULL DEFAULT '',
    prompt_tokens     INTEGER NOT NULL,
    completion_tokens INTEGER NOT NULL,
    total_tokens      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_token_usage_feature ON api_token_usage(feature_name);
CREATE INDEX IF NOT EXISTS idx_token_usage_timestamp ON api_token_usage(request_timestamp);
`
