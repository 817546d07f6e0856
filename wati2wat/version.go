package main

// The version number of the current wati2wat release.
const kWati2watVersion = "1.2.0"

// Schema version of the compile log. Bump when the table layout changes; an
// older log is discarded and every output is recompiled.
const kCompileLogVersion = 2
