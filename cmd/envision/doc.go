// Command envision runs the vision session API and offers local
// administration of the session database.
//
// "envision serve" starts the HTTP server, the synthesis worker and the
// single-instance lock. The visions, score, lexicon, config and doctor
// commands work directly against the configuration and database and do not
// need a running server.
package main
