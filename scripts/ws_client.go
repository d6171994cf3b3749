// Package main runs a demo WebSocket client that decodes several routes over
// one connection and prints the correlated replies.
package main

import (
	"fmt"
	"log"
	"math"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"routegeo/internal/model"
	"routegeo/internal/polyline"
	"routegeo/internal/protocol"
)

// loop returns an n-point circuit around center.
func loop(center model.GeoPoint, radiusDeg float64, n int) []model.GeoPoint {
	pts := make([]model.GeoPoint, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = model.GeoPoint{Lat: center.Lat + radiusDeg*math.Sin(a), Lng: center.Lng + radiusDeg*math.Cos(a)}
	}
	return pts
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/polyline/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	routes := map[string]string{
		"fixture": "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		"small":   polyline.Encode(loop(model.GeoPoint{Lat: 52.52, Lng: 13.405}, 0.01, 200)),
		"large":   polyline.Encode(loop(model.GeoPoint{Lat: 40.7128, Lng: -74.006}, 0.05, 5000)),
	}
	names := map[string]string{}
	for name, enc := range routes {
		id := uuid.NewString()
		names[id] = name
		if err := c.WriteJSON(protocol.Request{Type: protocol.TypeDecode, ID: id, Encoded: enc}); err != nil {
			log.Fatal(err)
		}
		log.Printf("WS -> %s (%s, %d bytes)", id, name, len(enc))
	}

	_ = c.SetReadDeadline(time.Now().Add(15 * time.Second))
	for len(names) > 0 {
		var resp protocol.Response
		if err := c.ReadJSON(&resp); err != nil {
			log.Fatalf("read: %v", err)
		}
		name := names[resp.ID]
		delete(names, resp.ID)
		if resp.Type == protocol.TypeError {
			log.Printf("WS <- %s (%s): error: %s", resp.ID, name, resp.Error)
			continue
		}
		fmt.Printf("%-8s %5d points\n", name, len(resp.Points))
	}
}
