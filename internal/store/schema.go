package store

// schemaSQL is the chunk table definition. The HNSW index dimension is
// filled in from the embedder configuration at init time; it must match
// the embedding model or inserts fail.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS episode_id ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS chunk_index ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS total_chunks ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS description_preview ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created ON chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS chunk_episode ON chunk FIELDS episode_id;
    DEFINE INDEX IF NOT EXISTS chunk_embedding ON chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`
