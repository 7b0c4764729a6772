package scrapers

// storefront scrapers here are read-only and drive a real browser page
// instead of raw HTTP: the session, cookies and javascript challenges all
// live in the browser profile, the scraper only navigates and reads.

// each scraping method generally has this structure:
// 1. build the url from typed inputs.
// 2. navigate, which either works or is a session-level failure.
// 3. wait for the page's structural container, missing structure means
//    the site changed or served something unexpected.
// 4. read fields out of the live page or a goquery snapshot of it.

// failures split into three tiers and each tier is handled differently:
// -> navigation failed: the session is broken, nothing else will work,
//    give up.
// -> structure missing: this one page is unusable, skip the unit of work
//    it belongs to.
// -> field missing: page layouts vary per order and per locale, take the
//    zero value and move on.

// extraction from a snapshot should be a pure function over the parsed
// document wherever possible, those are the parts worth testing against
// html fixtures.
