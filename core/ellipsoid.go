package core

import (
	"github.com/wroge/wgs84"

	"github.com/signalsfoundry/sar-geolocation/model"
)

var (
	lonLatToXYZ = wgs84.Transform(wgs84.WGS84().LonLat(), wgs84.WGS84().XYZ())
	xyzToLonLat = wgs84.Transform(wgs84.WGS84().XYZ(), wgs84.WGS84().LonLat())
)

// GeoToECEF converts a WGS84 geodetic point to ECEF metres.
func GeoToECEF(g model.GeoPoint) model.Vec3 {
	x, y, z := lonLatToXYZ(g.Lon, g.Lat, g.Height)
	return model.Vec3{X: x, Y: y, Z: z}
}

// ECEFToGeo converts ECEF metres to a WGS84 geodetic point.
func ECEFToGeo(p model.Vec3) model.GeoPoint {
	lon, lat, h := xyzToLonLat(p.X, p.Y, p.Z)
	return model.GeoPoint{Lat: lat, Lon: lon, Height: h}
}
