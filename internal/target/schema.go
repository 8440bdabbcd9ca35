package target

// Fixed target schema. Table and column names are the contract the query
// assistant (and any other consumer) writes SQL against; do not rename
// anything here without versioning the prompt schema alongside it.

// legacySchemaDrops clears tables from the clinical dataset that previously
// shared this database. Cascading drops so dependents vanish regardless of
// order.
const legacySchemaDrops = `
DROP TABLE IF EXISTS admission_lab_results CASCADE;
DROP TABLE IF EXISTS admission_primary_diagnoses CASCADE;
DROP TABLE IF EXISTS admissions CASCADE;
DROP TABLE IF EXISTS patients CASCADE;
DROP TABLE IF EXISTS lab_tests CASCADE;
DROP TABLE IF EXISTS diagnosis_codes CASCADE;
DROP TABLE IF EXISTS lab_units CASCADE;
DROP TABLE IF EXISTS languages CASCADE;
DROP TABLE IF EXISTS marital_statuses CASCADE;
DROP TABLE IF EXISTS races CASCADE;
DROP TABLE IF EXISTS genders CASCADE;
DROP TABLE IF EXISTS stage_labs CASCADE;
DROP TABLE IF EXISTS stage_diagnoses CASCADE;
DROP TABLE IF EXISTS stage_admissions CASCADE;
DROP TABLE IF EXISTS stage_patients CASCADE;
`

// schemaDrops removes the retail schema itself, children before parents.
const schemaDrops = `
DROP TABLE IF EXISTS order_detail CASCADE;
DROP TABLE IF EXISTS product CASCADE;
DROP TABLE IF EXISTS product_category CASCADE;
DROP TABLE IF EXISTS customer CASCADE;
DROP TABLE IF EXISTS country CASCADE;
DROP TABLE IF EXISTS region CASCADE;
`

// SchemaDDL recreates the six retail tables. Primary keys are plain INTEGER,
// not SERIAL: identifiers are carried over from the source unchanged.
const SchemaDDL = `
CREATE TABLE region (
    region_id INTEGER PRIMARY KEY,
    region    TEXT NOT NULL
);

CREATE TABLE country (
    country_id INTEGER PRIMARY KEY,
    country    TEXT NOT NULL,
    region_id  INTEGER NOT NULL REFERENCES region(region_id)
);

CREATE TABLE customer (
    customer_id INTEGER PRIMARY KEY,
    first_name  TEXT NOT NULL,
    last_name   TEXT NOT NULL,
    address     TEXT NOT NULL,
    city        TEXT NOT NULL,
    country_id  INTEGER NOT NULL REFERENCES country(country_id)
);

CREATE TABLE product_category (
    product_category_id INTEGER PRIMARY KEY,
    product_category    TEXT NOT NULL,
    product_category_description TEXT NOT NULL
);

CREATE TABLE product (
    product_id INTEGER PRIMARY KEY,
    product_name TEXT NOT NULL,
    product_unit_price NUMERIC(12,2) NOT NULL,
    product_category_id INTEGER NOT NULL REFERENCES product_category(product_category_id)
);

CREATE TABLE order_detail (
    order_id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL REFERENCES customer(customer_id),
    product_id  INTEGER NOT NULL REFERENCES product(product_id),
    order_date  DATE NOT NULL,
    quantity_ordered INTEGER NOT NULL
);
`
