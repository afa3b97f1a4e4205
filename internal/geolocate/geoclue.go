package geolocate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citypulse/client/pkg/core"
	"github.com/godbus/dbus/v5"
)

const (
	geoService    = "org.freedesktop.GeoClue2"
	managerPath   = dbus.ObjectPath("/org/freedesktop/GeoClue2/Manager")
	managerIface  = "org.freedesktop.GeoClue2.Manager"
	clientIface   = "org.freedesktop.GeoClue2.Client"
	locationIface = "org.freedesktop.GeoClue2.Location"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// accuracy levels from the GeoClue2 API
const (
	AccuracyCity   = uint32(4)
	AccuracyStreet = uint32(6)
	AccuracyExact  = uint32(8)
)

// GeoClue asks the GeoClue2 service on the system bus for one fix.
// The desktop id must match an installed .desktop file that declares
// X-Geoclue-2-Client=true, or the service will refuse the client.
type GeoClue struct {
	DesktopID string
	Accuracy  uint32
	// PollInterval between Location property reads while waiting for a fix.
	PollInterval time.Duration
	// Timeout bounds the wait for a fix. Zero means 10 seconds.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Locate implements Provider. It blocks until a fix arrives or ctx is done.
func (g GeoClue) Locate(ctx context.Context) (core.LatLng, error) {
	if g.Accuracy == 0 {
		g.Accuracy = AccuracyExact
	}
	if g.PollInterval <= 0 {
		g.PollInterval = 250 * time.Millisecond
	}
	if g.Timeout <= 0 {
		g.Timeout = 10 * time.Second
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	bus, err := dbus.ConnectSystemBus()
	if err != nil {
		return core.LatLng{}, fmt.Errorf("connect system bus: %w", err)
	}
	defer bus.Close()

	var clientPath dbus.ObjectPath
	if err := bus.Object(geoService, managerPath).CallWithContext(ctx, managerIface+".CreateClient", 0).Store(&clientPath); err != nil {
		return core.LatLng{}, fmt.Errorf("create client: %w", err)
	}
	client := bus.Object(geoService, clientPath)

	setProp := func(name string, val any) error {
		return client.CallWithContext(ctx, propsIface+".Set", 0, clientIface, name, dbus.MakeVariant(val)).Err
	}
	if err := setProp("DesktopId", g.DesktopID); err != nil {
		return core.LatLng{}, fmt.Errorf("set DesktopId: %w", err)
	}
	if err := setProp("RequestedAccuracyLevel", g.Accuracy); err != nil {
		return core.LatLng{}, fmt.Errorf("set accuracy: %w", err)
	}

	if err := client.CallWithContext(ctx, clientIface+".Start", 0).Err; err != nil {
		return core.LatLng{}, fmt.Errorf("start client: %w", err)
	}
	defer client.Call(clientIface+".Stop", 0)

	ticker := time.NewTicker(g.PollInterval)
	defer ticker.Stop()
	for {
		if p, ok := readFix(ctx, bus, client); ok {
			g.Logger.Debug("geoclue fix", "lat", p.Lat, "lng", p.Lng)
			return p, nil
		}
		select {
		case <-ctx.Done():
			return core.LatLng{}, fmt.Errorf("%w: %w", ErrNoFix, ctx.Err())
		case <-ticker.C:
		}
	}
}

func readFix(ctx context.Context, bus *dbus.Conn, client dbus.BusObject) (core.LatLng, bool) {
	var variant dbus.Variant
	if err := client.CallWithContext(ctx, propsIface+".Get", 0, clientIface, "Location").Store(&variant); err != nil {
		return core.LatLng{}, false
	}
	locPath, _ := variant.Value().(dbus.ObjectPath)
	if locPath == "" || locPath == "/" {
		return core.LatLng{}, false
	}

	var props map[string]dbus.Variant
	if err := bus.Object(geoService, locPath).CallWithContext(ctx, propsIface+".GetAll", 0, locationIface).Store(&props); err != nil {
		return core.LatLng{}, false
	}
	lat, okLat := props["Latitude"].Value().(float64)
	lng, okLng := props["Longitude"].Value().(float64)
	if !okLat || !okLng || (lat == 0 && lng == 0) {
		return core.LatLng{}, false
	}
	return core.LatLng{Lat: lat, Lng: lng}, true
}
