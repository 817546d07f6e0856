package main

import (
	"context"
	"encoding/json"
	"expvar"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"

	"wati2wat/outline"
	"wati2wat/rewrite"
)

// Various counters - see https://pkg.go.dev/expvar for details.
var (
	compileCalls   = expvar.NewInt("compileCalls")
	cacheHits      = expvar.NewInt("cacheHits")
	cacheMisses    = expvar.NewInt("cacheMisses")
	rejections     = expvar.NewInt("rejections")
	symbolsCalls   = expvar.NewInt("symbolsCalls")
	queryCalls     = expvar.NewInt("queryCalls")
	errorResponses = expvar.NewInt("errorResponses")

	// Total size in bytes for OK response bodies served.
	responseBodyBytes = expvar.NewInt("responseBodyBytes")

	compileServer *fasthttp.Server
)

const textPlain = "text/plain; charset=utf-8"

// HandleCompile expands the wati source in the request body. Results are
// cached by pipeline fingerprint and source.
func HandleCompile(ctx *fasthttp.RequestCtx) {
	compileCalls.Add(1)
	if !ctx.IsPost() {
		ctx.Error("POST the wati source to compile", fasthttp.StatusMethodNotAllowed)
		return
	}
	src := ctx.PostBody()
	if len(src) == 0 {
		ctx.Error("empty body", fasthttp.StatusBadRequest)
		return
	}
	name := string(ctx.QueryArgs().Peek("name"))
	pipeline := rewrite.Default()
	key := CacheKey(pipeline.Fingerprint(), src)
	log := logrus.WithFields(logrus.Fields{"name": name, "key": key[:16]})

	entry, err := FindCompileEntry(key)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	if entry != nil {
		out, err := EntryOutput(entry)
		if err != nil {
			ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
			return
		}
		if err := UpdateEntryAccess(entry.ID); err != nil {
			log.WithError(err).Warn("updating last access")
		}
		cacheHits.Add(1)
		log.WithField("id", entry.RequestID).Debug("cache hit")
		ctx.Response.Header.Set("X-Compile-Id", entry.RequestID)
		ctx.Response.Header.Set("X-Cache", "hit")
		ctx.Success(textPlain, out)
		return
	}

	cacheMisses.Add(1)
	out, stats, err := pipeline.Measure(string(src))
	if err != nil {
		if rewrite.IsRejection(err) {
			rejections.Add(1)
			log.WithError(err).Info("rejected")
			ctx.Error(err.Error(), fasthttp.StatusUnprocessableEntity)
			return
		}
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}

	entry = NewCompileEntry(name, key, src, out, stats, *compress, *expire)
	if err := SaveCompileEntry(entry); err != nil {
		// a concurrent request may have stored the same key
		log.WithError(err).Warn("caching compile result")
		ctx.Response.Header.Set("X-Cache", "uncached")
		ctx.Success(textPlain, []byte(out))
		return
	}
	log.WithField("id", entry.RequestID).Debug("compiled")
	ctx.Response.Header.Set("X-Compile-Id", entry.RequestID)
	ctx.Response.Header.Set("X-Cache", "miss")
	ctx.Success(textPlain, []byte(out))
}

// HandleQuery returns the metadata of a cache entry as JSON.
func HandleQuery(ctx *fasthttp.RequestCtx) {
	queryCalls.Add(1)
	key := string(ctx.QueryArgs().Peek("key"))
	if key == "" {
		ctx.Error("missing key", fasthttp.StatusBadRequest)
		return
	}
	entry, err := FindCompileEntry(key)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	if entry == nil {
		ctx.Error("no such entry", fasthttp.StatusNotFound)
		return
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

// HandleSymbols returns the outline of the body. With ?ident= it resolves a
// single identifier instead, inside ?func= if given.
func HandleSymbols(ctx *fasthttp.RequestCtx) {
	symbolsCalls.Add(1)
	if !ctx.IsPost() {
		ctx.Error("POST the source to outline", fasthttp.StatusMethodNotAllowed)
		return
	}
	o := outline.Parse(string(ctx.PostBody()))

	var result interface{} = o
	if ident := string(ctx.QueryArgs().Peek("ident")); ident != "" {
		sym, ok := o.Lookup(string(ctx.QueryArgs().Peek("func")), ident)
		if !ok {
			ctx.Error("unknown identifier "+ident, fasthttp.StatusNotFound)
			return
		}
		result = sym
	}
	buf, err := json.Marshal(result)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

func updateCounters(ctx *fasthttp.RequestCtx) {
	resp := &ctx.Response
	switch resp.StatusCode() {
	case fasthttp.StatusOK:
		responseBodyBytes.Add(int64(len(resp.Body())))
	default:
		errorResponses.Add(1)
	}
}

// requestHandler serves compiles and lookups, and server stats on /stats.
// /stats output may be filtered using regexps, /stats?r=cache shows only
// the cache counters.
func requestHandler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	switch string(ctx.Path()) {
	case "/stats":
		expvarhandler.ExpvarHandler(ctx)
		return
	case "/compile":
		HandleCompile(ctx)
	case "/query":
		HandleQuery(ctx)
	case "/symbols":
		HandleSymbols(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
	updateCounters(ctx)
	logrus.WithFields(logrus.Fields{
		"method":  string(ctx.Method()),
		"path":    string(ctx.Path()),
		"status":  ctx.Response.StatusCode(),
		"elapsed": time.Since(start),
	}).Debug("request")
}

func ServeCompile(addr string) {
	logrus.Infof("Starting HTTP server on %q", addr)
	compileServer = &fasthttp.Server{
		Handler:            requestHandler,
		ReadTimeout:        time.Minute,
		WriteTimeout:       time.Minute,
		MaxRequestBodySize: 16 << 20,
		Concurrency:        256 * 1024,
	}
	if err := compileServer.ListenAndServe(addr); err != nil {
		logrus.Fatalf("error in ListenAndServe: %v", err)
	}
}

func shutdown(ctx context.Context) {
	StopScheduler()
	if compileServer != nil {
		if err := compileServer.ShutdownWithContext(ctx); err != nil {
			logrus.Warn(err)
		}
	}
	if err := CloseDb(); err != nil {
		logrus.Warn(err)
	}
}
