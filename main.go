package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"CommLink/global"
	"CommLink/logger"
	mid "CommLink/middleware"
	midsec "CommLink/middleware/security"
	"CommLink/module/message"
	"CommLink/module/user"
	"CommLink/service/chat"
	"CommLink/service/mgo"
	"CommLink/service/natsx"
	"CommLink/service/storage"
	redisc "CommLink/service/storage/redis"
)

func main() {
	cfg := global.Load()
	global.ConfigIds()
	jwtOpts := cfg.JWT()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// persistence: message store comes up with Mongo, or not at all
	var store *message.MongoStore
	if cfg.MongoURI != "" {
		mgo.StartAsync(ctx, &mgo.Config{
			Uri:         cfg.MongoURI,
			Database:    cfg.MongoDatabase,
			MaxPoolSize: 20,
		})
		waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
		err := mgo.WaitReady(waitCtx, mgo.Manager())
		waitCancel()
		if err != nil {
			logger.Errorf("[main] mongo not ready: %v (last: %v)", err, mgo.Err())
		} else {
			store = message.NewMongoStore(mgo.GetDB(), func() int64 { return time.Now().UnixMilli() })
		}
	}

	var statusStore chat.MessageStatusStore
	if store != nil {
		statusStore = store
	}
	srv := chat.NewServer(cfg.NodeID, jwtOpts, statusStore)
	defer srv.Close()

	// cluster presence mirror
	if cfg.RedisAddr != "" {
		if err := redisc.Init(redisc.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}); err != nil {
			logger.Errorf("[main] redis init failed: %v", err)
		} else {
			srv.Registry().SetMirror(storage.NewMirror(cfg.NodeID, cfg.PresenceTTL))
		}
	}

	// persisted-message dispatch: direct bridge call on a single node,
	// NATS fan-out when a cluster is configured
	dispatch := func(m *message.Message) {
		srv.Bridge().DeliverPersistedMessage(m)
	}
	if len(cfg.NatsServers) > 0 {
		nc, err := natsx.NewClient(natsx.Config{Servers: cfg.NatsServers, Name: cfg.NodeID})
		if err != nil {
			logger.Errorf("[main] nats connect failed, falling back to direct dispatch: %v", err)
		} else {
			defer nc.Close()
			if _, err := nc.SubscribePersistedMessages(func(data []byte) {
				var m message.Message
				if err := json.Unmarshal(data, &m); err != nil {
					logger.Errorf("[dispatch] bad message payload: %v", err)
					return
				}
				srv.Bridge().DeliverPersistedMessage(&m)
			}); err != nil {
				logger.Errorf("[main] nats subscribe failed: %v", err)
			}
			dispatch = func(m *message.Message) {
				data, err := json.Marshal(m)
				if err != nil {
					logger.Errorf("[dispatch] marshal message id=%s err=%v", m.ID, err)
					return
				}
				if err := nc.PublishPersistedMessage(data); err != nil {
					logger.Errorf("[dispatch] publish id=%s err=%v, delivering locally", m.ID, err)
					srv.Bridge().DeliverPersistedMessage(m)
				}
			}
		}
	}

	// HTTP + WebSocket
	mid.ConfigAuth(midsec.DefaultOptions(jwtOpts))
	user.JWTOpts = jwtOpts

	r := gin.New()
	r.Use(gin.Recovery(), mid.AllowOrigin())

	r.GET("/chat", srv.HandleWS) // e.g. ws://localhost:8080/chat?token=...
	mid.POST(r, "/login", user.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/check", user.HandlerCheck, mid.RouteOpt{IsAuth: true})

	if store != nil {
		h := &message.Handler{Store: store, Dispatch: dispatch}
		mid.POST(r, "/messages/send/:id", h.HandleSend, mid.RouteOpt{IsAuth: true})
		mid.GET(r, "/messages/:id", h.HandleHistory, mid.RouteOpt{IsAuth: true})
		mid.POST(r, "/messages/read/:id", h.HandleRead, mid.RouteOpt{IsAuth: true})
	} else {
		logger.Warnf("[main] no message store; realtime events only, nothing will persist")
	}

	logger.Infof("[HTTP] listening on %s node=%s", cfg.HTTPAddr, cfg.NodeID)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("[HTTP] server failed: %v", err)
	}
}
