package render

import "github.com/go-gl/mathgl/mgl64"

// unit returns the unit vector in v's direction, or the zero vector.
// mgl64's Normalize divides by the length unchecked.
func unit(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// transformPoint applies m to (p, 1) and keeps the homogeneous result.
func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec4 {
	return m.Mul4x1(p.Vec4(1))
}

// transformDir applies m to (d, 0), ignoring translation.
func transformDir(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// eulerXYZ returns the rotation for Euler angles applied in X, Y, Z order.
func eulerXYZ(e mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(e.X()).
		Mul4(mgl64.HomogRotate3DY(e.Y())).
		Mul4(mgl64.HomogRotate3DZ(e.Z()))
}

// perspective is mgl64.Perspective with the vertical field of view in degrees.
func perspective(fov, aspect, near, far float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(fov), aspect, near, far)
}

// lookAt returns the view matrix of an eye at eye looking at target. It
// stays finite when eye and target coincide or up is parallel to the view
// direction.
func lookAt(eye, target, up mgl64.Vec3) mgl64.Mat4 {
	if target.Sub(eye).Len() == 0 {
		target = eye.Sub(mgl64.Vec3{0, 0, 1})
	}
	if target.Sub(eye).Cross(up).Len() < 1e-9 {
		up = up.Add(mgl64.Vec3{1e-4, 0, 1e-4})
	}
	return mgl64.LookAtV(eye, target, up)
}
