// Package domain models gridded vertically integrated water vapor flux data
// and the integrated vapor transport (IVT) derivation.
//
// # Data Source
//
// Input fields are the eastward (uflux) and northward (vflux) components of
// the vertically integrated water vapor flux vector, as distributed in
// reanalysis products such as ERA-Interim, ERA5 and MERRA-2. Both components
// live on the same (time, latitude, longitude) grid and carry CF-style
// descriptive attributes (long_name, standard_name, units).
//
// # IVT
//
// The integrated vapor transport is the magnitude of the flux vector,
//
//	IVT² = uflux² + vflux²
//
// computed independently per grid cell and per time step. Units follow the
// input components, conventionally kg/m/s.
//
// # Masked values
//
// Reanalysis files mark missing cells with a fill value (_FillValue or
// missing_value attribute). Within this package a masked cell is NaN; any
// arithmetic involving NaN yields NaN, which reproduces masked-array
// propagation. The file adapters translate between fill values and NaN at
// the boundary.
//
// # Time axes
//
// Time coordinates use CF-style relative units, e.g. "hours since
// 1900-01-01 00:00:00". [ParseCFTime] decodes such an axis to UTC timestamps
// for plot titles and summaries.
package domain
