// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xs

import (
	"math"

	"github.com/cpmech/neutron/geom"
)

// FreeGasThreshold is the energy (eV) below which target-at-rest elastic
// scattering is replaced by a free-gas (thermal motion) treatment; it is
// wired from the "energy_freegas_threshold" setting.
// A zero value disables the free-gas treatment (target always at rest),
// the fallback for implementers who do not need thermal accuracy.
var FreeGasThreshold = 0.0

// FreeGasAWRCutoff limits the free-gas treatment to targets lighter than
// this atomic weight ratio; heavy targets barely move thermally, so their
// at-rest approximation holds even below FreeGasThreshold. Zero means no
// cutoff. Wired from the "awr_freegas_threshold" setting.
var FreeGasAWRCutoff = 0.0

// ElasticScatter performs two-body elastic scattering in the centre-of-mass
// frame, rotated back to the lab frame, for a target of the given atomic
// weight ratio (AWR). Below FreeGasThreshold, for targets lighter than
// FreeGasAWRCutoff, the target velocity is sampled from a Maxwellian;
// otherwise the target is treated as at rest.
func ElasticScatter(dirLab geom.Vec3, eLab, awr float64, rng RNG) (geom.Vec3, float64) {
	targetVel := geom.Vec3{}
	if FreeGasThreshold > 0 && eLab < FreeGasThreshold &&
		(FreeGasAWRCutoff == 0 || awr < FreeGasAWRCutoff) {
		targetVel = sampleMaxwellianVelocity(awr, rng)
	}

	// neutron velocity magnitude (arbitrary units consistent with eLab
	// being proportional to v²; we work in v-space directly since only
	// ratios matter for the CoM transform).
	vn := math.Sqrt(eLab)
	vNeutron := dirLab.Scale(vn)

	// centre-of-mass velocity
	vcm := geom.Vec3{
		(vNeutron[0] + awr*targetVel[0]) / (1 + awr),
		(vNeutron[1] + awr*targetVel[1]) / (1 + awr),
		(vNeutron[2] + awr*targetVel[2]) / (1 + awr),
	}

	// neutron velocity in CoM frame
	vRelCom := vNeutron.Sub(vcm)
	speedCom := vRelCom.Norm()

	// isotropic scattering angle in CoM (default angular law)
	mu := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	newDirCom := rotateAboutAxis(vRelCom.Normalize(), mu, phi)
	newVRelCom := newDirCom.Scale(speedCom)

	newVLab := geom.Vec3{
		newVRelCom[0] + vcm[0],
		newVRelCom[1] + vcm[1],
		newVRelCom[2] + vcm[2],
	}
	newSpeed := newVLab.Norm()
	newE := newSpeed * newSpeed
	return newVLab.Normalize(), newE
}

// rotateAboutAxis builds a new direction whose cosine with axis is mu,
// azimuthally rotated by phi about axis; axis need not be a coordinate axis.
func rotateAboutAxis(axis geom.Vec3, mu, phi float64) geom.Vec3 {
	sinTheta := math.Sqrt(math.Max(0, 1-mu*mu))

	// build an orthonormal basis {u, v, axis}
	var arbitrary geom.Vec3
	if math.Abs(axis[0]) < 0.9 {
		arbitrary = geom.Vec3{1, 0, 0}
	} else {
		arbitrary = geom.Vec3{0, 1, 0}
	}
	u := cross(axis, arbitrary).Normalize()
	v := cross(axis, u)

	return geom.Vec3{
		sinTheta*math.Cos(phi)*u[0] + sinTheta*math.Sin(phi)*v[0] + mu*axis[0],
		sinTheta*math.Cos(phi)*u[1] + sinTheta*math.Sin(phi)*v[1] + mu*axis[1],
		sinTheta*math.Cos(phi)*u[2] + sinTheta*math.Sin(phi)*v[2] + mu*axis[2],
	}
}

func cross(a, b geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// sampleMaxwellianVelocity draws a target velocity (in the same v-space
// units as neutron velocity) from a Maxwellian distribution scaled by the
// target's mass (via AWR), using the Box-Muller transform over three axes.
func sampleMaxwellianVelocity(awr float64, rng RNG) geom.Vec3 {
	sigma := 1 / math.Sqrt(awr)
	gauss := func() float64 {
		u1, u2 := rng.Float64(), rng.Float64()
		if u1 < 1e-300 {
			u1 = 1e-300
		}
		return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	}
	return geom.Vec3{sigma * gauss(), sigma * gauss(), sigma * gauss()}
}
