package mysql

const insertReviewSQL = `
INSERT INTO reviews
  (review_text, unique_code, business_name, photo_url)
VALUES
  (?, ?, ?, ?)
`

// Preferences are append-only; readers take the newest row.
const insertPreferencesSQL = `
INSERT INTO demo_preferences
  (restaurant_name, google_maps_url, contact_email)
VALUES
  (?, ?, ?)
`

const insertDemoPageSQL = `
INSERT INTO demo_pages
  (restaurant_name, google_maps_url, contact_email, slug)
VALUES
  (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// id breaks ties between rows written in the same millisecond.
const latestPreferencesSQL = `
SELECT restaurant_name, google_maps_url, contact_email
FROM demo_preferences
ORDER BY created_at DESC, id DESC
LIMIT 1
`

const getDemoPageSQL = `
SELECT id, restaurant_name, google_maps_url, contact_email, slug
FROM demo_pages
WHERE slug = ?
`
